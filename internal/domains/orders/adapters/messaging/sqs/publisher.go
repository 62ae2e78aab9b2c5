package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// API is the subset of the SQS client the publisher needs.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends order events to one SQS queue as JSON messages.
type Publisher struct {
	client   API
	queueURL string
}

// NewPublisher returns a Publisher bound to queueURL.
func NewPublisher(client API, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

// NewFromRegion loads the default AWS credential chain for region and
// returns a publisher backed by a real SQS client.
func NewFromRegion(ctx context.Context, region, queueURL string) (*Publisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewPublisher(sqs.NewFromConfig(cfg), queueURL), nil
}

// Publish serializes event and sends it with its name as a message
// attribute. FIFO queues get the order as message group so consumers see
// status changes in write order.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	if p == nil || p.client == nil {
		return errors.New("sqs publisher not configured")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventName(), err)
	}
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"eventName": {DataType: aws.String("String"), StringValue: aws.String(event.EventName())},
		},
	}
	if changed, ok := event.(domain.OrderStatusChanged); ok {
		orderID := strconv.FormatInt(changed.OrderID, 10)
		input.MessageAttributes["orderId"] = sqstypes.MessageAttributeValue{DataType: aws.String("Number"), StringValue: aws.String(orderID)}
		if strings.HasSuffix(p.queueURL, ".fifo") {
			input.MessageGroupId = aws.String(orderID)
			input.MessageDeduplicationId = aws.String(orderID + "-" + string(changed.Status))
		}
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("send %s (%s): %w", event.EventName(), apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("send %s: %w", event.EventName(), err)
	}
	return nil
}
