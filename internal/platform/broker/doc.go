// Package broker publishes event envelopes to a Dapr-style pub/sub gateway
// over HTTP. Each envelope is POSTed to
//
//	http://{host}:{port}/v1.0/publish/{component}/{topic}
//
// with the CloudEvents attributes mirrored into Ce-* headers. Failed
// deliveries are retried under a bounded RetryPolicy. A disabled publisher
// accepts every envelope and performs no I/O.
package broker
