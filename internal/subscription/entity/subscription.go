package entity

import "time"

// Subscription links a subscriber to the channel (user) they follow.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}
