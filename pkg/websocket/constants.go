package websocket

// Environment variable names for websocket tuning.
const (
	EnvWebSocketMaxConnections      = "WS_MAX_CONNECTIONS"
	EnvWebSocketHeartbeatInterval   = "WS_HEARTBEAT_INTERVAL"
	EnvWebSocketConnectionTimeout   = "WS_CONNECTION_TIMEOUT"
	EnvWebSocketMessageBufferSize   = "WS_MESSAGE_BUFFER_SIZE"
	EnvWebSocketReadBufferSize      = "WS_READ_BUFFER_SIZE"
	EnvWebSocketWriteBufferSize     = "WS_WRITE_BUFFER_SIZE"
	EnvWebSocketMaxMessageSize      = "WS_MAX_MESSAGE_SIZE"
	EnvWebSocketEnableCompression   = "WS_ENABLE_COMPRESSION"
	EnvWebSocketDropOnFull          = "WS_DROP_ON_FULL"
	EnvWebSocketCloseOnBackpressure = "WS_CLOSE_ON_BACKPRESSURE"
	EnvWebSocketSendTimeoutMs       = "WS_SEND_TIMEOUT_MS"
)
