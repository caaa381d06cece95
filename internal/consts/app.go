package consts

const (
	ApplicationName    = "SD Gallery Server"
	ApplicationVersion = "v1.0.0"
)
