package blueprint

// WiringEdge is a directed relation (consumer, consumer_import) ->
// (provider, provider_export). Provider is either another component name
// or the literal sentinel "host".
type WiringEdge struct {
	Consumer       string
	ConsumerImport InterfaceName
	Provider       string
	ProviderExport InterfaceName
}

// WiringKey identifies one entry of the wiring table: (consumer, import).
// The wiring table has no duplicate keys.
type WiringKey struct {
	Consumer string
	Import   string // InterfaceName.Qualified()
}

func newWiringKey(consumer string, iface InterfaceName) WiringKey {
	return WiringKey{Consumer: consumer, Import: iface.Qualified()}
}

// parseWiringEntry parses one "[wiring]" key/value pair. key has the shape
// "<consumer>.<interface-qualified-name>"; value has the shape
// "<provider>.<interface-qualified-name>".
func parseWiringEntry(key, value string) (WiringEdge, error) {
	consumer, consumerIfaceRaw, ok := cutFirst(key, ".")
	if !ok || consumer == "" || consumerIfaceRaw == "" {
		return WiringEdge{}, newParseError(MalformedWiringKey, "wiring key %q does not match <component>.<interface>", key)
	}
	consumerIface, err := ParseInterfaceName(consumerIfaceRaw)
	if err != nil {
		return WiringEdge{}, newParseError(MalformedWiringKey, "wiring key %q: %v", key, err)
	}

	provider, providerIfaceRaw, ok := cutFirst(value, ".")
	if !ok || provider == "" || providerIfaceRaw == "" {
		return WiringEdge{}, newParseError(MalformedWiringKey, "wiring value %q does not match <provider>.<interface>", value)
	}
	providerIface, err := ParseInterfaceName(providerIfaceRaw)
	if err != nil {
		return WiringEdge{}, newParseError(MalformedWiringKey, "wiring value %q: %v", value, err)
	}

	return WiringEdge{
		Consumer:       consumer,
		ConsumerImport: consumerIface,
		Provider:       provider,
		ProviderExport: providerIface,
	}, nil
}
