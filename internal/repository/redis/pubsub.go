package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// InvitationsPubSub fans out "invitation changed" notices so every replica
// can drop its cached copies.
type InvitationsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewInvitationsPubSub(rdb *redis.Client) *InvitationsPubSub {
	return &InvitationsPubSub{
		rdb:     rdb,
		channel: ChannelInvitationsChanged(),
	}
}

type invitationChangedMsg struct {
	Type         string `json:"type"`
	InvitationID string `json:"invitation_id"`
	Name         string `json:"name,omitempty"`
	TsUnix       int64  `json:"ts_unix"`
}

func (p *InvitationsPubSub) PublishInvitationChanged(ctx context.Context, id, name string) error {
	msg := invitationChangedMsg{
		Type:         "invitation_changed",
		InvitationID: id,
		Name:         name,
		TsUnix:       time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe calls handler for every notice until ctx is done.
func (p *InvitationsPubSub) Subscribe(
	ctx context.Context,
	handler func(ctx context.Context, id, name string),
) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed so no notice is missed
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev invitationChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.InvitationID != "" {
				handler(ctx, ev.InvitationID, ev.Name)
			}
		}
	}
}
