// Package upload stores story photos between upload and submission.
//
// Photos are too large to ride the WebSocket comfortably, so the client
// posts them over plain HTTP first:
//
//  1. The user picks or captures a photo in the add-story form.
//  2. The client POSTs it to /uploads as multipart field "photo".
//  3. The server stores it (disk or S3) and answers {"temp_id": "..."}.
//  4. The client sends the temp_id with the "submit" action.
//  5. The add-story page calls Store.Claim to take the bytes.
//
// # Security
//
// The handler checks Config.AllowedTypes against the type detected from
// the content (http.DetectContentType); the client's Content-Type header
// is not trusted. Temp IDs are random UUIDs, and unclaimed files are
// removed by Cleanup.
package upload
