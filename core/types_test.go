package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"valid", Entry{ID: "a", Score: 10, Payload: map[string]any{"n": 1}}, false},
		{"negative score", Entry{ID: "a", Score: -3, Payload: "x"}, false},
		{"empty id", Entry{ID: "", Score: 10, Payload: "x"}, true},
		{"whitespace id", Entry{ID: " ", Score: 10, Payload: "x"}, false},
		{"zero score", Entry{ID: "a", Score: 0, Payload: "x"}, true},
		{"nan score", Entry{ID: "a", Score: math.NaN(), Payload: "x"}, true},
		{"nil payload", Entry{ID: "a", Score: 1}, true},
		{"empty string payload", Entry{ID: "a", Score: 1, Payload: ""}, true},
		{"empty bytes payload", Entry{ID: "a", Score: 1, Payload: []byte{}}, true},
		{"false payload", Entry{ID: "a", Score: 1, Payload: false}, true},
		{"int zero payload", Entry{ID: "a", Score: 1, Payload: 0}, true},
		{"float zero payload", Entry{ID: "a", Score: 1, Payload: 0.0}, true},
		{"uint zero payload", Entry{ID: "a", Score: 1, Payload: uint8(0)}, true},
		{"nan payload", Entry{ID: "a", Score: 1, Payload: math.NaN()}, true},
		{"true payload", Entry{ID: "a", Score: 1, Payload: true}, false},
		{"numeric payload", Entry{ID: "a", Score: 1, Payload: 7}, false},
		{"empty map payload", Entry{ID: "a", Score: 1, Payload: map[string]any{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEntry) {
					t.Fatalf("expected ErrInvalidEntry, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	require.ErrorIs(t, ValidateID(""), ErrInvalidEntry)
	assert.NoError(t, ValidateID(" "))
	assert.NoError(t, ValidateID("\t"))
	assert.NoError(t, ValidateID("a"))
}

func TestEntryValidate_DecodedFalsyPayloads(t *testing.T) {
	var c JSONCodec
	for _, raw := range []string{`false`, `0`, `0.0`, `""`, `null`} {
		payload, err := c.Unmarshal([]byte(raw))
		require.NoError(t, err, raw)
		err = Entry{ID: "a", Score: 5, Payload: payload}.Validate()
		assert.ErrorIs(t, err, ErrInvalidEntry, raw)
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	var c JSONCodec
	b, err := c.Marshal(map[string]any{"name": "alice"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Unmarshal(b)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := out.(map[string]any)
	if !ok || m["name"] != "alice" {
		t.Fatalf("unexpected payload: %#v", out)
	}
	if _, err := c.Unmarshal([]byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRawCodec(t *testing.T) {
	var c RawCodec
	b, err := c.Marshal("hello")
	if err != nil || string(b) != "hello" {
		t.Fatalf("got %q %v", b, err)
	}
	if _, err := c.Marshal(42); err == nil {
		t.Fatal("expected error for non-bytes payload")
	}
	out, _ := c.Unmarshal([]byte("x"))
	if string(out.([]byte)) != "x" {
		t.Fatalf("unexpected payload: %#v", out)
	}
}

func TestRankResultFound(t *testing.T) {
	if (RankResult{Rank: NotRanked}).Found() {
		t.Fatal("NotRanked should not be found")
	}
	if !(RankResult{Rank: 1}).Found() {
		t.Fatal("rank 1 should be found")
	}
}
