// Package queue connects the service layer to RabbitMQ: a publisher for
// booking confirmations and a consumer for externally delivered payment
// events.
package queue

// PaymentEventMessage is the envelope consumed from the payment.events
// queue. The broker path is an alternative delivery channel with the
// same at-least-once semantics as the HTTP webhook: the body is the raw
// provider payload and the signature is verified exactly as for HTTP.
type PaymentEventMessage struct {
	TenantID  string `json:"tenant_id"`
	Signature string `json:"signature"`
	Payload   []byte `json:"payload"`
}
