// Package config provides configuration parsing for the storyapp server.
//
// The configuration is stored in storyapp.json in the working directory.
// This package handles loading, saving, and validating configuration.
// Command line flags override individual values after loading.
//
// # Configuration File Structure
//
//	{
//	  "name": "Dicoding Stories",
//	  "server": {
//	    "port": 8080,
//	    "shutdownTimeout": "30s",
//	    "metrics": true,
//	    "publicDir": "public"
//	  },
//	  "api": {
//	    "baseURL": "https://story-api.dicoding.dev/v1",
//	    "timeout": "15s"
//	  },
//	  "store": {
//	    "backend": "redis",
//	    "redisAddr": "localhost:6379"
//	  },
//	  "photos": {
//	    "backend": "s3",
//	    "bucket": "storyapp-uploads",
//	    "region": "ap-southeast-1"
//	  },
//	  "ui": {
//	    "transitionDelay": "150ms"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "json"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
