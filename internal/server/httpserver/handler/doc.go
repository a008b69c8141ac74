// Package handler provides the HTTP handlers of the admin listener.
//
// Every JSON response uses the Response envelope. Handlers read server
// state through Source, which *redisserver.Server satisfies.
package handler
