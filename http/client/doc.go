// Package client is used to send events to and query a projection via HTTP.
/*
client provides event consumption and the query facade of a remote store.

Create a Client

A client requires the base URL of a HTTP server and an authorization string.

When running against a pg store, the authorization of an API key must be used.
An API key is created via the "go-bpmn-query-pgd" command - for example: "go-bpmn-query-pgd -create-api-key -secret-id my-producer".

When running against a mem store, basic authentication must be used.

	client, err := client.New("http://localhost:8080", "Basic dGVzdHVzZXJuYW1lOnRlc3RwYXNzd29yZA==")
	if err != nil {
		log.Fatalf("failed to create HTTP client: %v", err)
	}

	defer client.Shutdown()

	results, err := client.Find(ctx, projection.KindProcessInstance, map[string]string{"status": "RUNNING"}, projection.QueryOptions{})
*/
package client
