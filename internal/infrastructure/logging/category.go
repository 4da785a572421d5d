package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Internal        Category = "Internal"
	Registry        Category = "Registry"
	Relay           Category = "Relay"
	RequestResponse Category = "RequestResponse"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	Sweep           SubCategory = "Sweep"
	Broadcast       SubCategory = "Broadcast"
	Connection      SubCategory = "Connection"
	ExternalService SubCategory = "ExternalService"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RoomToken    ExtraKey = "RoomToken"
	SocketID     ExtraKey = "SocketID"
	EventName    ExtraKey = "EventName"
	MemberCount  ExtraKey = "MemberCount"
	EvictedCount ExtraKey = "EvictedCount"
	ErrorMessage ExtraKey = "ErrorMessage"
)
