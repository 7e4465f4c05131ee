// Package proto declares the SecureVault gRPC wire contract: request and
// response messages, the codec they travel with, and the service
// descriptor plus typed client and server stubs.
//
// Messages are plain Go structs with hand-written protobuf encoders built
// on protowire; timestamps travel as google.protobuf.Timestamp. The codec
// registers under the default "proto" content subtype, so no call option is
// needed, though clients may still pass
// grpc.CallContentSubtype(proto.CodecName).
package proto
