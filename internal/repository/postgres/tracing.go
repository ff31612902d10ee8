package postgresrepo

import "go.opentelemetry.io/otel"

var tracer = otel.GetTracerProvider().Tracer("github.com/kirinyoku/wedgo/internal/repository/postgres")
