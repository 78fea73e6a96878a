package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type errSink struct{ err error }

func (s errSink) Notify(Notification) error { return s.err }

type recordSink struct{ got []Notification }

func (s *recordSink) Notify(n Notification) error {
	s.got = append(s.got, n)
	return nil
}

func TestLogSink_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Log: zerolog.New(&buf)}

	err := sink.Notify(Notification{
		Identifier: "plan_9",
		Title:      "Medicine Reminder",
		Body:       "Time to take your Aspirin (100mg) after food",
		Payload:    Payload{PlanID: 9, IsNextDay: true},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"identifier":"plan_9"`, `"plan_id":9`, `"is_next_day":true`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %s: %s", want, out)
		}
	}
}

func TestMultiSink_FanoutAndFirstFailureWins(t *testing.T) {
	rec1 := &recordSink{}
	rec2 := &recordSink{}
	e1 := errors.New("first")
	e2 := errors.New("second")

	m := MultiSink{rec1, errSink{e1}, errSink{e2}, rec2}
	n := Notification{Identifier: "plan_3"}

	if err := m.Notify(n); !errors.Is(err, e1) {
		t.Fatalf("err = %v, want first failure", err)
	}
	// Later sinks still receive the notification.
	if len(rec1.got) != 1 || len(rec2.got) != 1 {
		t.Fatalf("fanout incomplete: %d/%d", len(rec1.got), len(rec2.got))
	}
}

func TestMultiSink_EmptyIsNoOp(t *testing.T) {
	if err := (MultiSink{}).Notify(Notification{}); err != nil {
		t.Fatalf("empty sink list errored: %v", err)
	}
}
