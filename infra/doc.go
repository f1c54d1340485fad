// Package infra holds the adapters behind the core interfaces: the built-in
// routing engines, zerolog, Prometheus and Influx sinks, the MQTT plan
// publisher and Sentry.
package infra
