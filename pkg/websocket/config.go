package websocket

import (
	"fmt"
	"time"

	"SafeSignal/pkg/util"
)

// Config tunes connection limits and the backpressure policy.
type Config struct {
	MaxConnections    int64
	HeartbeatInterval time.Duration
	ConnectionTimeout time.Duration
	MessageBufferSize int
	ReadBufferSize    int
	WriteBufferSize   int
	MaxMessageSize    int
	EnableCompression bool

	// Slow-subscriber policy: drop the frame when the send buffer is full,
	// or wait up to SendTimeout. Either way the publisher never blocks
	// indefinitely. CloseOnBackpressure additionally disconnects the laggard.
	DropOnFull          bool
	SendTimeout         time.Duration
	CloseOnBackpressure bool
}

func DefaultConfig() *Config {
	return &Config{
		MaxConnections:      10000,
		HeartbeatInterval:   30 * time.Second,
		ConnectionTimeout:   60 * time.Second,
		MessageBufferSize:   256,
		ReadBufferSize:      1024,
		WriteBufferSize:     1024,
		MaxMessageSize:      4096,
		EnableCompression:   true,
		DropOnFull:          true,
		SendTimeout:         50 * time.Millisecond,
		CloseOnBackpressure: false,
	}
}

// LoadConfigFromEnv overlays environment settings on the defaults.
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if maxConnections := util.GetIntEnv(EnvWebSocketMaxConnections); maxConnections > 0 {
		config.MaxConnections = maxConnections
	}
	if heartbeatInterval := util.GetIntEnv(EnvWebSocketHeartbeatInterval); heartbeatInterval > 0 {
		config.HeartbeatInterval = time.Duration(heartbeatInterval) * time.Second
	}
	if connectionTimeout := util.GetIntEnv(EnvWebSocketConnectionTimeout); connectionTimeout > 0 {
		config.ConnectionTimeout = time.Duration(connectionTimeout) * time.Second
	}
	if messageBufferSize := util.GetIntEnv(EnvWebSocketMessageBufferSize); messageBufferSize > 0 {
		config.MessageBufferSize = int(messageBufferSize)
	}
	if readBuf := util.GetIntEnv(EnvWebSocketReadBufferSize); readBuf > 0 {
		config.ReadBufferSize = int(readBuf)
	}
	if writeBuf := util.GetIntEnv(EnvWebSocketWriteBufferSize); writeBuf > 0 {
		config.WriteBufferSize = int(writeBuf)
	}
	if maxMsg := util.GetIntEnv(EnvWebSocketMaxMessageSize); maxMsg > 0 {
		config.MaxMessageSize = int(maxMsg)
	}
	if enableCompression := util.GetEnv(EnvWebSocketEnableCompression); enableCompression != "" {
		config.EnableCompression = util.GetBoolEnv(EnvWebSocketEnableCompression)
	}
	if dropOnFull := util.GetEnv(EnvWebSocketDropOnFull); dropOnFull != "" {
		config.DropOnFull = util.GetBoolEnv(EnvWebSocketDropOnFull)
	}
	if closeOnBp := util.GetEnv(EnvWebSocketCloseOnBackpressure); closeOnBp != "" {
		config.CloseOnBackpressure = util.GetBoolEnv(EnvWebSocketCloseOnBackpressure)
	}
	if sendTimeoutMs := util.GetIntEnv(EnvWebSocketSendTimeoutMs); sendTimeoutMs > 0 {
		config.SendTimeout = time.Duration(sendTimeoutMs) * time.Millisecond
	}

	return config
}

// ValidateConfig rejects configurations that would deadlock or never ping.
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config must not be nil")
	}
	if config.MaxConnections <= 0 {
		return fmt.Errorf("MaxConnections must be positive")
	}
	if config.HeartbeatInterval <= 0 || config.ConnectionTimeout <= 0 {
		return fmt.Errorf("heartbeat interval and connection timeout must be positive")
	}
	if config.HeartbeatInterval >= config.ConnectionTimeout {
		return fmt.Errorf("heartbeat interval must be shorter than connection timeout")
	}
	if config.MessageBufferSize <= 0 {
		return fmt.Errorf("MessageBufferSize must be positive")
	}
	if config.ReadBufferSize <= 0 || config.WriteBufferSize <= 0 {
		return fmt.Errorf("read/write buffer sizes must be positive")
	}
	if config.MaxMessageSize <= 0 {
		return fmt.Errorf("MaxMessageSize must be positive")
	}
	if !config.DropOnFull && config.SendTimeout <= 0 {
		return fmt.Errorf("SendTimeout must be set when DropOnFull is disabled")
	}
	return nil
}
