// Package transport moves envelopes between a node and the line-oriented
// channel it is attached to, one JSON record per line in each direction.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"maelstrom-node/internal/telemetry"
	"maelstrom-node/message"
)

const DefaultMaxLineSize = 1 << 20

// Dispatcher is the protocol side of the loop. *node.Node implements it.
type Dispatcher interface {
	Decode(line []byte) (message.Envelope, error)
	Handle(in message.Envelope) ([]message.Envelope, error)
	Reject(in message.Envelope, err error) (message.Envelope, bool)
}

type Options struct {
	Logger      *zap.Logger
	MaxLineSize int
	// ReplyErrors answers unsupported requests with a Maelstrom error body.
	ReplyErrors bool
}

// Run feeds every line of r to d, one at a time and in order, and writes the
// resulting envelopes to w as they are produced. A record that fails to
// decode or dispatch is logged and skipped. Run returns nil at end of input.
func Run(ctx context.Context, r io.Reader, w io.Writer, d Dispatcher, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxLineSize := opts.MaxLineSize
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}

	in := bufio.NewReader(r)
	out := bufio.NewWriter(w)

	for {
		raw, tooLong, readErr := readLine(in, maxLineSize)
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("read: %w", readErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if tooLong {
			reject(log, fmt.Errorf("%w: record exceeds %d bytes", message.ErrDecoding, maxLineSize))
		} else if line := bytes.TrimSpace(raw); len(line) > 0 {
			for _, env := range dispatch(d, line, opts.ReplyErrors, log) {
				encoded, err := message.Encode(env)
				if err != nil {
					return fmt.Errorf("encode reply: %w", err)
				}
				if _, err := out.Write(append(encoded, '\n')); err != nil {
					return fmt.Errorf("write: %w", err)
				}
				telemetry.MessagesSent.WithLabelValues(env.Body.Payload.Type()).Inc()
			}
			if err := out.Flush(); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}

		if readErr == io.EOF {
			return nil
		}
	}
}

// readLine returns the next line of r without buffering more than maxLen
// bytes of it. A longer line is consumed up to its newline and reported as
// tooLong so the caller can skip it and carry on with the next record.
func readLine(r *bufio.Reader, maxLen int) (line []byte, tooLong bool, err error) {
	for {
		var chunk []byte
		chunk, err = r.ReadSlice('\n')
		if !tooLong {
			if content := len(line) + len(bytes.TrimSuffix(chunk, []byte("\n"))); content > maxLen {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return line, tooLong, err
	}
}

func dispatch(d Dispatcher, line []byte, replyErrors bool, log *zap.Logger) []message.Envelope {
	in, err := d.Decode(line)
	if err != nil {
		reject(log, err, zap.ByteString("line", line))
		return nil
	}

	typ := in.Body.Payload.Type()
	if _, ok := in.Body.Payload.(*message.Unknown); ok {
		typ = "unknown"
	}
	telemetry.MessagesReceived.WithLabelValues(typ).Inc()

	out, err := d.Handle(in)
	if err != nil {
		reject(log, err, zap.String("src", in.Src), zap.Uint64("msg_id", in.Body.MessageID))
		if !replyErrors {
			return nil
		}
		if rejection, ok := d.Reject(in, err); ok {
			return []message.Envelope{rejection}
		}
		return nil
	}
	return out
}

func reject(log *zap.Logger, err error, fields ...zap.Field) {
	kind := message.ErrorKind(err)
	telemetry.Errors.WithLabelValues(kind).Inc()
	log.Warn("rejected message", append(fields,
		zap.String("kind", kind),
		zap.Int("code", message.Code(err)),
		zap.Error(err))...)
}
