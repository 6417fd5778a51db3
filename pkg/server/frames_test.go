package server

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/storyapp/storyapp/pkg/router"
)

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    message
		wantErr bool
	}{
		{
			name:  "hello",
			input: `{"type":"hello","fragment":"#/story/1","viewTransitions":true,"online":false}`,
			want:  message{Type: msgHello, Fragment: "#/story/1", ViewTransitions: true, Online: false},
		},
		{
			name:  "online defaults to true",
			input: `{"type":"hello","fragment":""}`,
			want:  message{Type: msgHello, Online: true},
		},
		{
			name:  "hashchange",
			input: `{"type":"hashchange","fragment":"#/map"}`,
			want:  message{Type: msgHashChange, Fragment: "#/map", Online: true},
		},
		{name: "invalid json", input: `{"type":`, wantErr: true},
		{name: "missing type", input: `{"fragment":"#/"}`, wantErr: true},
		{name: "action without name", input: `{"type":"action"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeMessage([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, errInvalidMessage) {
					t.Fatalf("err = %v, want errInvalidMessage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeMessage() error = %v", err)
			}
			if got.Type != tt.want.Type || got.Fragment != tt.want.Fragment ||
				got.ViewTransitions != tt.want.ViewTransitions || got.Online != tt.want.Online {
				t.Errorf("decodeMessage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeActionValues(t *testing.T) {
	m, err := decodeMessage([]byte(`{"type":"action","name":"submit","values":{"description":"hi","lat":"-6.2","count":3}}`))
	if err != nil {
		t.Fatalf("decodeMessage() error = %v", err)
	}
	if m.Action.Name != "submit" {
		t.Errorf("Action.Name = %q, want submit", m.Action.Name)
	}
	want := map[string]string{"description": "hi", "lat": "-6.2", "count": "3"}
	for k, v := range want {
		if m.Action.Values[k] != v {
			t.Errorf("Values[%q] = %q, want %q", k, m.Action.Values[k], v)
		}
	}
}

func TestFrameEncoding(t *testing.T) {
	data, err := json.Marshal(frame{Type: frameStyle, Data: newStyleData(router.Style{Opacity: 0.5, OffsetY: 20, Animate: true})})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"style","data":{"opacity":0.5,"offsetY":20,"animate":true}}`
	if string(data) != want {
		t.Errorf("style frame = %s, want %s", data, want)
	}

	data, _ = json.Marshal(frame{Type: frameTransitionStart})
	if string(data) != `{"type":"transition-start"}` {
		t.Errorf("marker frame = %s", data)
	}
}
