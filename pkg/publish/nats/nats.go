package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/model"
)

const (
	SubjectPrefix = "pitstrategy.plan"
	// header set by the publisher, usable for JetStream deduplication
	MsgIDHeader = nats.MsgIdHdr
)

type (
	msgPublisher interface {
		PublishMsg(m *nats.Msg) error
	}
	Publisher struct {
		conn msgPublisher
		l    *log.Logger
	}
	Option func(*Publisher)
)

// NewPublisher publishes plans on conn. Usually conn is a *nats.Conn.
func NewPublisher(conn msgPublisher, opts ...Option) *Publisher {
	ret := &Publisher{
		conn: conn,
		l:    log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.l = l
	}
}

// Subject returns the subject for plans of the given source.
// An empty source yields the wildcard subject for all sources.
func Subject(source string) string {
	if source == "" {
		return SubjectPrefix + ".*"
	}
	return fmt.Sprintf("%s.%s", SubjectPrefix, sanitize(source))
}

// PlanCreated publishes the plan as json
func (p *Publisher) PlanCreated(ctx context.Context, plan *model.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(Subject(plan.Source))
	msg.Header.Set(MsgIDHeader, uuid.NewString())
	msg.Data = data
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish plan %s: %w", plan.ID, err)
	}
	p.l.Debug("plan published",
		log.String("subject", msg.Subject),
		log.String("id", plan.ID.String()))
	return nil
}

// Subscribe calls fn for every plan published for source.
// Messages which cannot be decoded are logged and skipped.
//
//nolint:whitespace // editor/linter issue
func Subscribe(
	conn *nats.Conn,
	source string,
	fn func(p *model.Plan),
) (*nats.Subscription, error) {
	l := log.Default().Named("nats")
	return conn.Subscribe(Subject(source), func(msg *nats.Msg) {
		p, err := decode(msg)
		if err != nil {
			l.Warn("could not decode plan",
				log.String("subject", msg.Subject),
				log.ErrorField(err))
			return
		}
		fn(p)
	})
}

func decode(msg *nats.Msg) (*model.Plan, error) {
	var p model.Plan
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// subject tokens must not contain whitespace, dots or wildcards
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
