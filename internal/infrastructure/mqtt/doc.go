// Package mqtt provides the station feed: a subscribe-only MQTT client
// for the topics the weather-station software publishes loop packets
// and archive records on.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.Source)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(cfg.Source.LoopTopic, 1,
//	    func(topic string, payload []byte) error {
//	        // decode and dispatch
//	        return nil
//	    })
//
// # Reliability
//
// The connection auto-reconnects with bounded backoff and restores all
// subscriptions on reconnect. Handler panics are recovered and logged;
// a malformed payload can never take down the feed.
package mqtt
