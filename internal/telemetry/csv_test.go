package telemetry

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vovakirdan/neuropong/internal/pong"
)

func TestCSVSinkWritesOneRowPerGeneration(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCSVSink(&buf, nil)

	sink.Emit(pong.ContactEvent{Side: pong.SideAgents, Hitters: 2, Culled: 8, Speed: 10.25})
	sink.Emit(pong.ContactEvent{Side: pong.SideOpponent, Speed: 10.5})
	sink.Emit(pong.ContactEvent{Side: pong.SideAgents, Hitters: 2, Speed: 10.75})
	sink.Emit(pong.MissEvent{Score: 1})
	sink.Emit(pong.GenerationEvent{Generation: 1, Tick: 300, Fitness: 2, BestFitness: 2, MutationRate: 0.1, Survivors: 2, Replaced: 8})
	sink.Emit(pong.PlayerScoreEvent{Score: 1})
	sink.Emit(pong.GenerationEvent{Generation: 2, Tick: 500, Fitness: 1, BestFitness: 2, MutationRate: 1, Survivors: 10, Replaced: 10})

	if sink.Err() != nil {
		t.Fatalf("Err() = %v", sink.Err())
	}
	if sink.Rows() != 2 {
		t.Errorf("Rows() = %d, expected 2", sink.Rows())
	}
	if strings.Count(buf.String(), "generation,") != 1 {
		t.Errorf("header should be written once:\n%s", buf.String())
	}

	rows, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("read %d rows, expected 2", len(rows))
	}
	first := rows[0]
	if first.Contacts != 2 || first.Culled != 8 || first.Misses != 1 || first.MaxBallSpeed != 10.75 {
		t.Errorf("first row counters = %+v", first)
	}
	if first.Generation != 1 || first.Tick != 300 || first.Replaced != 8 {
		t.Errorf("first row = %+v", first)
	}
	second := rows[1]
	if second.Contacts != 0 || second.PlayerPoints != 1 || second.Misses != 0 {
		t.Errorf("counters not reset between rows: %+v", second)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestCSVSinkKeepsFirstError(t *testing.T) {
	sink := NewCSVSink(failingWriter{}, nil)
	sink.Emit(pong.GenerationEvent{Generation: 1})
	sink.Emit(pong.GenerationEvent{Generation: 2})

	if sink.Err() == nil {
		t.Error("expected a write error")
	}
	if sink.Rows() != 0 {
		t.Errorf("Rows() = %d, expected 0", sink.Rows())
	}
}

func TestCreateCSV(t *testing.T) {
	if s, err := CreateCSV("", nil); s != nil || err != nil {
		t.Errorf("CreateCSV(\"\") = %v, %v, expected disabled", s, err)
	}

	path := filepath.Join(t.TempDir(), "out", "generations.csv")
	sink, err := CreateCSV(path, nil)
	if err != nil {
		t.Fatalf("CreateCSV() failed: %v", err)
	}
	sink.Emit(pong.GenerationEvent{Generation: 1, BestFitness: 1.25})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "generation,tick,") {
		t.Errorf("unexpected file contents:\n%s", data)
	}
}

func TestNilSinkIsSafe(t *testing.T) {
	var sink *CSVSink
	sink.Emit(pong.GenerationEvent{})
	if sink.Rows() != 0 || sink.Err() != nil || sink.Close() != nil {
		t.Error("nil sink should be inert")
	}
}
