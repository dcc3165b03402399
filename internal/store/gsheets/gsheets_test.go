package gsheets

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"ledgerbook/internal/store"

	"google.golang.org/api/googleapi"
)

func TestClassifyTransientCodes(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503} {
		err := classify(fmt.Errorf("read: %w", &googleapi.Error{Code: code}))
		if !store.IsTransient(err) {
			t.Fatalf("code %d should be transient", code)
		}
	}
}

func TestClassifyFatalCodes(t *testing.T) {
	for _, code := range []int{400, 403, 404} {
		err := classify(fmt.Errorf("read: %w", &googleapi.Error{Code: code}))
		if store.IsTransient(err) {
			t.Fatalf("code %d should be fatal", code)
		}
	}
	plain := errors.New("not an api error")
	if store.IsTransient(classify(plain)) {
		t.Fatal("non-API errors should be fatal")
	}
	if classify(nil) != nil {
		t.Fatal("nil should stay nil")
	}
}

func TestToRecords(t *testing.T) {
	in := [][]any{
		{"  id ", "date"},
		{"e1", 42, true},
	}
	got := toRecords(in)
	want := [][]string{{"id", "date"}, {"e1", "42", "true"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
