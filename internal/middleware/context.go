package middleware

type contextKey string

const WebhookBodyContextKey contextKey = "webhookBody"
