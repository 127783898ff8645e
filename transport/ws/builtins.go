package ws

import (
	"context"
	"fmt"
	"slices"

	json "github.com/goccy/go-json"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/rpc"
)

var builtins = []string{
	rampart.MethodGetMethods,
	rampart.MethodGetSubscriptions,
	rampart.MethodGetTopics,
	rampart.MethodSubscribe,
	rampart.MethodUnsubscribe,
}

func (c *client) dispatch(ctx context.Context, req *rpc.Request) (any, error) {
	switch req.Method {
	case rampart.MethodGetMethods:
		names := append(c.conn.State().MethodNames(), builtins...)
		slices.Sort(names)
		return names, nil
	case rampart.MethodGetTopics:
		return c.conn.State().TopicNames(), nil
	case rampart.MethodGetSubscriptions:
		return c.conn.State().SubscriptionNames(), nil
	case rampart.MethodSubscribe:
		return c.eachTopic(req.Params, c.conn.Subscribe)
	case rampart.MethodUnsubscribe:
		return c.eachTopic(req.Params, c.conn.Unsubscribe)
	}
	return c.conn.Call(ctx, req.Method, req.Params)
}

// eachTopic applies fn to the topic or topics named by params and reports
// whether it succeeded for all of them.
func (c *client) eachTopic(params json.RawMessage, fn func(string) bool) (bool, error) {
	topics, err := topicParams(params)
	if err != nil {
		return false, err
	}
	ok := true
	for _, t := range topics {
		if !fn(t) {
			ok = false
		}
	}
	return ok, nil
}

// topicParams accepts "topic", ["a", "b"] or {"topic": "a"}.
func topicParams(params json.RawMessage) ([]string, error) {
	var one string
	if err := json.Unmarshal(params, &one); err == nil && one != "" {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(params, &many); err == nil && len(many) > 0 {
		return many, nil
	}
	var named struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal(params, &named); err == nil && named.Topic != "" {
		return []string{named.Topic}, nil
	}
	return nil, fmt.Errorf("%w: expected a topic name", rpc.ErrInvalidParams)
}
