package constants

const (
	ServiceName = "rpcfailover"
)
