// kestrel
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package httpclient passes a shared http.Client through the context.
// Check routines take their client from the invocation context so all
// invocations pool connections; request deadlines come from the context,
// not from the client.
package httpclient

import (
	"context"
	"net/http"

	"github.com/caas-team/kestrel/internal/logger"
)

type client struct{}

// IntoContext embeds the http.Client into the given context.
func IntoContext(ctx context.Context, c *http.Client) context.Context {
	return context.WithValue(ctx, client{}, c)
}

// FromContext extracts the http.Client from the provided context. A
// context without a client, which only happens outside the executor,
// falls back to http.DefaultClient.
func FromContext(ctx context.Context) *http.Client {
	if ctx != nil {
		if c, ok := ctx.Value(client{}).(*http.Client); ok {
			return c
		}
	}

	logger.FromContext(ctx).Debug("No http.Client in context, using http.DefaultClient")
	return http.DefaultClient
}
