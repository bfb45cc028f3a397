package handler

import (
	"nexchat/internal/app/channel"
	"nexchat/internal/configs"
)

// AppDeps bundles the relay's shared dependencies for the handlers.
type AppDeps struct {
	Config   *configs.AppConfig
	Channels channel.Store
}
