package queue

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// sqsTransport is the narrow slice of SQS the queue needs: publish an event
// body (optionally delayed), poll for deliveries, and delete by receipt
// handle. Tests substitute a fake.
type sqsTransport interface {
	Send(ctx context.Context, queueURL, body string, delaySeconds int32) (string, error)
	Receive(ctx context.Context, queueURL string, max, waitSeconds, visibilitySeconds int32) ([]sqsDelivery, error)
	Delete(ctx context.Context, queueURL, receiptHandle string) error
}

// sqsDelivery is one message as received from SQS. The receipt handle, not
// the message ID, is what Delete needs.
type sqsDelivery struct {
	MessageID     string
	ReceiptHandle string
	Body          string
}

// sqsGateway implements sqsTransport over the AWS SDK client.
type sqsGateway struct {
	client *sqs.Client
}

func newSQSGateway(region string) (*sqsGateway, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &sqsGateway{client: sqs.NewFromConfig(cfg)}, nil
}

func (g *sqsGateway) Send(ctx context.Context, queueURL, body string, delaySeconds int32) (string, error) {
	out, err := g.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     &queueURL,
		MessageBody:  &body,
		DelaySeconds: delaySeconds,
	})
	if err != nil {
		return "", err
	}
	if out.MessageId == nil {
		return "", nil
	}
	return *out.MessageId, nil
}

func (g *sqsGateway) Receive(ctx context.Context, queueURL string, max, waitSeconds, visibilitySeconds int32) ([]sqsDelivery, error) {
	out, err := g.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &queueURL,
		MaxNumberOfMessages: max,
		WaitTimeSeconds:     waitSeconds,
		VisibilityTimeout:   visibilitySeconds,
	})
	if err != nil {
		return nil, err
	}

	deliveries := make([]sqsDelivery, len(out.Messages))
	for i, m := range out.Messages {
		if m.MessageId != nil {
			deliveries[i].MessageID = *m.MessageId
		}
		if m.ReceiptHandle != nil {
			deliveries[i].ReceiptHandle = *m.ReceiptHandle
		}
		if m.Body != nil {
			deliveries[i].Body = *m.Body
		}
	}
	return deliveries, nil
}

func (g *sqsGateway) Delete(ctx context.Context, queueURL, receiptHandle string) error {
	_, err := g.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &queueURL,
		ReceiptHandle: &receiptHandle,
	})
	return err
}
