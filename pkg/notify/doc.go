// Package notify publishes the network settings to an MQTT broker whenever
// they change.
//
// A Publisher is registered as the setup service's update callback. Each
// committed write publishes a retained JSON snapshot of the registry to the
// configured topic, so a subscriber joining later still sees the current
// network. The master key is never published; the snapshot only reports
// whether one is set.
//
//	pub, err := notify.Dial(notify.Config{BrokerURL: "mqtt://broker:1883/otsetup", DeviceID: id})
//	if err != nil {
//	    return err
//	}
//	svc.OnUpdated(pub.Hook(reg))
package notify
