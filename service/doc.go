// Package service is the single write path into the store. It sequences
// every mutation, logs it to the entry WAL, applies it to the red-black
// tree and queues it in the outbox for broadcasting, independent of the
// transport in front of it.
package service
