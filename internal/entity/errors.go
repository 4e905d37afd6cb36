package entity

import "errors"

var (
	// Caller errors
	ErrMissingCredential = errors.New("API Key is missing. Set WAVESPEED_API_KEY on the server or send apiKey in the request body")
	ErrInvalidRequest    = errors.New("invalid request")

	// Upstream errors
	ErrUpstreamRejected = errors.New("WaveSpeed Error")
	ErrJobFailed        = errors.New("WaveSpeed failed to process the image")
	ErrPollTimeout      = errors.New("Timeout: Server took too long to respond.")
	ErrTransport        = errors.New("upstream request failed")

	// The caller went away before the job finished
	ErrCanceled = errors.New("request canceled by client")
)
