// Package support assembles the multi-agent customer support team: store
// backed tools for product inquiries, orders and complaints, the six
// assistants that use them and a Service that runs the team per query.
package support
