// Package freeathome provides a Go client library for the ABB free@home
// SysAP local API.
//
// The library covers the authenticated REST surface of the SysAP
// (configuration tree, device lookup, datapoint reads and writes, virtual
// device provisioning), the unauthenticated settings document, and the
// WebSocket event stream that pushes datapoint changes.
//
// # Basic Usage
//
// Create a client and fetch the configuration tree:
//
//	client, err := freeathome.NewClient("https://192.168.1.100", "installer", "secret",
//	    freeathome.WithInsecureSkipVerify(), // SysAPs use self-signed certificates
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	config, err := client.GetConfiguration(ctx)
//	for serial, device := range config.Devices {
//	    fmt.Printf("%s: %s\n", serial, device.DisplayName)
//	}
//
// Control a channel by writing a datapoint:
//
//	err := client.SetDatapoint(ctx, "ABB7F500E07A", "ch0003", "idp0000", "1")
//
// # Event Stream
//
// Listen receives datapoint changes until the context ends. Transient
// connection failures are retried with a fixed pause; TLS failures are
// fatal because a certificate problem never self-heals:
//
//	err := client.Listen(ctx, func(payload *freeathome.EventPayload) {
//	    for key, value := range payload.Datapoints {
//	        fmt.Printf("%s = %s\n", key, value)
//	    }
//	})
//
// # Typed Channels
//
// Channel types map raw datapoints onto device state:
//
//	cfg := config.Devices["ABB7F500E07A"].Channels["ch0003"]
//	actuator := freeathome.NewSwitchActuator(client, "ABB7F500E07A", "ch0003", cfg)
//	err := actuator.TurnOn(ctx)
//
// # Error Handling
//
// Failures are classified into sentinel errors:
//
//	_, err := client.GetConfiguration(ctx)
//	if err != nil {
//	    switch {
//	    case freeathome.IsInvalidCredentials(err):
//	        // wrong username or password
//	    case freeathome.IsSSLError(err):
//	        // certificate verification failed
//	    case freeathome.IsClientConnection(err):
//	        // SysAP unreachable
//	    }
//	}
//
// # Settings
//
// The settings document is served without authentication and reports the
// SysAP's users and firmware:
//
//	settings := freeathome.NewSettings("http://192.168.1.100")
//	if err := settings.Load(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(settings.Version(), settings.HasAPISupport())
package freeathome
