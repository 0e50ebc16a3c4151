package client

import "github.com/mangohow/gorest/metadata"

// ServiceDesc groups the methods of one remote service.
type ServiceDesc struct {
	ServiceName string
	Methods     []MethodDesc
}

type MethodDesc struct {
	Name     string
	Metadata *metadata.MethodMetadata
}
