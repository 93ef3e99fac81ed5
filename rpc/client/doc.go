// Package client implements the client request driver of the file server.
//
// NewRPCFileClient returns an IFileClient that opens one connection per request over the
// configured transport, encodes the request with the text codec and converts whatever
// happens into a common.Outcome. The elapsed time of an outcome covers the whole
// operation, including reading the file to upload or writing a downloaded file.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  DownloadDir:   "downloads",
//	  Transport:     common.ClientTransportConfig{Endpoint: "localhost:7777"},
//	}
//
//	c, err := client.NewRPCFileClient(config, tcp.NewTCPClientTransport())
//	if err != nil {
//	  log.Fatal(err)
//	}
//
//	out := c.Upload(ctx, "10MB.dat", "")
//	fmt.Println(out)
//
// A TimeoutSecond of 0 sets no deadlines: a request queued behind busy server workers
// waits for its turn instead of failing.
//
// Each client keeps a go-metrics registry with one timer per verb and meters for the
// bytes sent and received (see IFileClient.Metrics).
package client
