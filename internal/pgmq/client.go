package pgmq

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Client wraps a Postgres DB for pgmq queue operations.
type Client struct {
	db *sql.DB
}

// New returns a new PGMQ client backed by the given DB connection.
func New(db *sql.DB) *Client {
	return &Client{db: db}
}

// Message represents a single pgmq message.
type Message struct {
	ID     int64  // message identifier
	ReadCt int    // times the message has been read
	Data   []byte // raw JSON payload
}

// Send pushes a JSON payload into the given queue.
func (c *Client) Send(ctx context.Context, queue string, payload []byte) error {
	return c.SendWithDelay(ctx, queue, payload, 0)
}

// SendWithDelay pushes a JSON payload that becomes visible after delaySec seconds.
func (c *Client) SendWithDelay(ctx context.Context, queue string, payload []byte, delaySec int) error {
	if delaySec < 0 {
		delaySec = 0
	}
	query := "SELECT pgmq.send($1, $2::jsonb, $3)"
	if _, err := c.db.ExecContext(ctx, query, queue, string(payload), delaySec); err != nil {
		return fmt.Errorf("pgmq send to %s failed: %w", queue, err)
	}
	return nil
}

// ReadWithPoll reads up to maxMessages from the queue, blocking up to timeoutSec seconds.
// Messages stay invisible to other readers for visibilitySec seconds.
func (c *Client) ReadWithPoll(ctx context.Context, queue string, visibilitySec, timeoutSec, maxMessages int) ([]*Message, error) {
	query := "SELECT msg_id, read_ct, message FROM pgmq.read_with_poll($1, $2, $3, $4)"
	rows, err := c.db.QueryContext(ctx, query, queue, visibilitySec, maxMessages, timeoutSec)
	if err != nil {
		return nil, fmt.Errorf("pgmq read_with_poll failed: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.ReadCt, &m.Data); err != nil {
			return nil, fmt.Errorf("pgmq read scan failed: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmq read rows error: %w", err)
	}
	return msgs, nil
}

// Delete removes messages by their IDs from the specified queue.
func (c *Client) Delete(ctx context.Context, queue string, msgIDs []int64) error {
	query := "SELECT pgmq.delete($1, $2::bigint[])"
	if _, err := c.db.ExecContext(ctx, query, queue, pq.Array(msgIDs)); err != nil {
		return fmt.Errorf("pgmq delete failed: %w", err)
	}
	return nil
}

// Metrics reports the depth of a queue.
func (c *Client) Metrics(ctx context.Context, queue string) (length int64, err error) {
	query := "SELECT queue_length FROM pgmq.metrics($1)"
	if err := c.db.QueryRowContext(ctx, query, queue).Scan(&length); err != nil {
		return 0, fmt.Errorf("pgmq metrics for %s failed: %w", queue, err)
	}
	return length, nil
}
