package kafka

import (
	"encoding/json"
	"log"
	"time"

	"payment-service/model"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Topics carrying the finalized-payment fact. A separate consumer (the
// transaction side of the platform) owns propagating these into order
// records; this service only produces them.
const (
	TopicPaymentPaid   = "payment.paid"
	TopicPaymentFailed = "payment.failed"
)

type Producer struct {
	producer sarama.SyncProducer
}

func NewProducer(broker string) *Producer {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	var producer sarama.SyncProducer
	var err error

	for i := 1; i <= 10; i++ {
		producer, err = sarama.NewSyncProducer([]string{broker}, config)
		if err == nil {
			log.Println("Kafka producer initialized for payment-service")
			return &Producer{producer: producer}
		}

		log.Printf("Waiting for Kafka... (%d/10) Error: %v", i, err)
		time.Sleep(5 * time.Second)
	}

	log.Fatalf("Failed to start Kafka producer after retries: %v", err)
	return nil
}

// PublishPaymentEvent emits the terminal-transition fact. Publishing is
// best-effort: a broker failure is logged and never unwinds the committed
// status change.
func (p *Producer) PublishPaymentEvent(topic string, payment *model.Payment) {
	event := map[string]interface{}{
		"event_id":   uuid.NewString(),
		"event_type": topic,
		"data": map[string]interface{}{
			"payment_id": payment.ID,
			"order_id":   payment.OrderID,
			"user_id":    payment.UserID,
			"amount":     payment.Amount,
			"currency":   payment.Currency,
			"status":     payment.Status,
			"updated_at": payment.UpdatedAt.Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", topic, err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		log.Printf("Failed to send %s event for order %s: %v", topic, payment.OrderID, err)
	}
}
