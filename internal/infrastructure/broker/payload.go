package broker

import domain "main/internal/domain/entity/trading"

type BaseMessage struct {
	Tick   *domain.MarketTick     `json:"tick,omitempty"`
	Report *domain.RawTradeReport `json:"report,omitempty"`
}
