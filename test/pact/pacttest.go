//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "order-lifecycle-api"
	ConsumerName = "order-portal"

	StateCatalogSeeded  = "item 11 and truck 21 exist"
	StateOrderCreated   = "order 1 was created by pact-client"
	StateOrderSubmitted = "order 1 awaits approval"
	StateOrderMissing   = "no order with id 999"
)

const (
	CatalogItemID  int64 = 11
	CatalogTruckID int64 = 21

	ExistingOrderID int64 = 1
	MissingOrderID  int64 = 999

	ClientUsername = "pact-client"
	DeadlineDate   = "2099-12-31"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the order portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCreateOrderPayload is the order the portal places in every interaction.
func ExampleCreateOrderPayload() map[string]any {
	return map[string]any{
		"deadlineDate": DeadlineDate,
		"items": []map[string]any{
			{"itemId": CatalogItemID, "requestedQuantity": 2},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
