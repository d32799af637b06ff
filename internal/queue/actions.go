// Typed enqueue wrappers. Each wrapper fixes the action type, endpoint,
// HTTP verb and retry ceiling for one mutation kind so callers only
// supply the payload.
package queue

import (
	"fmt"
	"net/http"

	"github.com/kimhsiao/merchsync/internal/models"
)

// QueueProductCreate queues creation of a catalog product.
func (q *Queue) QueueProductCreate(p models.ProductPayload) (*models.OfflineAction, error) {
	return q.Enqueue(models.ActionProductCreate, "/api/products", http.MethodPost,
		p, models.DefaultMaxRetries)
}

// QueueProductUpdate queues an update of an existing product.
func (q *Queue) QueueProductUpdate(productID string, p models.ProductPayload) (*models.OfflineAction, error) {
	return q.Enqueue(models.ActionProductUpdate,
		fmt.Sprintf("/api/products/%s", productID), http.MethodPut,
		p, models.DefaultMaxRetries)
}

// QueueProductDelete queues deletion of a product. No payload.
func (q *Queue) QueueProductDelete(productID string) (*models.OfflineAction, error) {
	return q.Enqueue(models.ActionProductDelete,
		fmt.Sprintf("/api/products/%s", productID), http.MethodDelete,
		nil, models.DefaultMaxRetries)
}

// QueueOrderUpdate queues an order status change. Order state is
// fulfillment-critical and gets the higher retry ceiling.
func (q *Queue) QueueOrderUpdate(orderID string, p models.OrderStatusPayload) (*models.OfflineAction, error) {
	return q.Enqueue(models.ActionOrderUpdate,
		fmt.Sprintf("/api/orders/%s/status", orderID), http.MethodPut,
		p, models.CriticalMaxRetries)
}

// QueueCashbackApproval queues approval of a cashback request.
func (q *Queue) QueueCashbackApproval(requestID string) (*models.OfflineAction, error) {
	return q.Enqueue(models.ActionCashbackApprove,
		fmt.Sprintf("/api/cashback-requests/%s/approve", requestID), http.MethodPost,
		models.CashbackDecisionPayload{Decision: models.CashbackStatusApproved},
		models.CriticalMaxRetries)
}

// QueueCashbackRejection queues rejection of a cashback request with an
// optional reason shown to the customer.
func (q *Queue) QueueCashbackRejection(requestID, reason string) (*models.OfflineAction, error) {
	return q.Enqueue(models.ActionCashbackReject,
		fmt.Sprintf("/api/cashback-requests/%s/reject", requestID), http.MethodPost,
		models.CashbackDecisionPayload{Decision: models.CashbackStatusRejected, Reason: reason},
		models.CriticalMaxRetries)
}
