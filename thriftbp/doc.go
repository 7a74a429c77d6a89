// Package thriftbp adapts clientpool to Apache Thrift.
//
// It implements the clientpool.ConnectionFactory and clientpool.LivenessProbe
// contracts on top of thrift.TSocket and thrift.TStandardClient, and wraps
// the resulting clientpool.Pool in a ClientPool that exposes the familiar
// thrift.TClient.Call shape to generated Thrift client stubs.
//
// This package is client-only. Server-side Thrift concerns (processors,
// request middleware, tracing propagation) are out of scope here; services
// that need them should look to a dedicated server framework.
package thriftbp
