package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEventJSON(t *testing.T) {
	at := time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)
	in := Event{Kind: TransactionUpdated, EntityID: "tx-1", At: at}

	data, err := in.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"kind":"transaction.updated","entityId":"tx-1","at":"2025-01-15T08:30:00Z"}`; string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Kind != in.Kind || out.EntityID != in.EntityID || !out.At.Equal(at) {
		t.Errorf("Unmarshal() = %+v, want %+v", out, in)
	}
}

func TestUnmarshalRejects(t *testing.T) {
	for _, in := range []string{`{"entityId":"x"}`, `not json`} {
		t.Run(in, func(t *testing.T) {
			if _, err := Unmarshal([]byte(in)); err == nil {
				t.Errorf("Unmarshal(%s) expected error", in)
			}
		})
	}
}

func TestFanout(t *testing.T) {
	var got []Kind
	record := PublisherFunc(func(_ context.Context, e Event) error {
		got = append(got, e.Kind)
		return nil
	})
	boom := errors.New("boom")
	failing := PublisherFunc(func(context.Context, Event) error { return boom })

	f := Fanout{record, nil, failing, record, Nop}
	err := f.Publish(context.Background(), New(DataReset, ""))
	if !errors.Is(err, boom) {
		t.Errorf("Publish() error = %v, want boom", err)
	}
	if len(got) != 2 {
		t.Errorf("recording publisher called %d times, want 2", len(got))
	}
}
