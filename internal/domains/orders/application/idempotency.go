package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
)

type normalizedCreateOrderInput struct {
	ClientUsername string            `json:"clientUsername"`
	DeadlineDate   string            `json:"deadlineDate"`
	Items          []domain.ItemLine `json:"items"`
}

// FingerprintCreateOrder hashes the create-order payload, excluding the
// idempotency key. Line order and duplicate lines do not change the result.
func FingerprintCreateOrder(input types.CreateOrderInput) (string, error) {
	lines := domain.MergeItemLines(input.Lines())
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
	payload, err := json.Marshal(normalizedCreateOrderInput{
		ClientUsername: strings.TrimSpace(input.ClientUsername),
		DeadlineDate:   domain.FormatDate(input.DeadlineDate),
		Items:          lines,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
