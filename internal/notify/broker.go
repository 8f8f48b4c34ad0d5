package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"tempora_back_end/internal/shop"
)

const eventChannel = "shop:events"

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	typeProofUploaded      = "proof_uploaded"
	typeVerificationResult = "verification_result"
)

// RedisBroker publie les événements de commande sur un canal Pub/Sub Redis :
// plusieurs instances peuvent consommer, et une instance sans consommateur
// ne bloque jamais le flux de commande.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) PublishProofUploaded(ctx context.Context, ev shop.ProofUploadedEvent) {
	b.publish(ctx, typeProofUploaded, ev)
}

func (b *RedisBroker) PublishVerificationResult(ctx context.Context, ev shop.VerificationResultEvent) {
	b.publish(ctx, typeVerificationResult, ev)
}

func (b *RedisBroker) publish(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️ Sérialisation événement %s : %v", eventType, err)
		return
	}
	raw, _ := json.Marshal(envelope{Type: eventType, Payload: data})
	if err := b.client.Publish(ctx, eventChannel, raw).Err(); err != nil {
		log.Printf("⚠️ Publication événement %s : %v", eventType, err)
	}
}

// StartConsumer abonne le notifier au canal d'événements jusqu'à annulation
// du contexte.
func (b *RedisBroker) StartConsumer(ctx context.Context, notifier *Notifier) {
	sub := b.client.Subscribe(ctx, eventChannel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				dispatch(ctx, notifier, []byte(msg.Payload))
			}
		}
	}()
	log.Println("✅ Consommateur de notifications démarré")
}

func dispatch(ctx context.Context, notifier *Notifier, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("⚠️ Événement illisible : %v", err)
		return
	}

	switch env.Type {
	case typeProofUploaded:
		var ev shop.ProofUploadedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			log.Printf("⚠️ Événement %s illisible : %v", env.Type, err)
			return
		}
		notifier.HandleProofUploaded(ctx, ev)
	case typeVerificationResult:
		var ev shop.VerificationResultEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			log.Printf("⚠️ Événement %s illisible : %v", env.Type, err)
			return
		}
		notifier.HandleVerificationResult(ctx, ev)
	default:
		log.Printf("⚠️ Type d'événement inconnu : %s", env.Type)
	}
}

// DirectBroker court-circuite Redis et livre les événements au notifier dans
// le même processus. Profil mémoire et tests.
type DirectBroker struct {
	notifier *Notifier
}

func NewDirectBroker(notifier *Notifier) *DirectBroker {
	return &DirectBroker{notifier: notifier}
}

func (b *DirectBroker) PublishProofUploaded(ctx context.Context, ev shop.ProofUploadedEvent) {
	b.notifier.HandleProofUploaded(ctx, ev)
}

func (b *DirectBroker) PublishVerificationResult(ctx context.Context, ev shop.VerificationResultEvent) {
	b.notifier.HandleVerificationResult(ctx, ev)
}
