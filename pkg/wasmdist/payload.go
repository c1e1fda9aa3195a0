package wasmdist

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

type DeliveryKind int

const (
	DeliveryUnmanaged DeliveryKind = iota
	DeliveryInline
	DeliverySibling
)

func (kind DeliveryKind) String() string {
	switch kind {
	case DeliveryInline:
		return "inline"
	case DeliverySibling:
		return "sibling"
	default:
		return "unmanaged"
	}
}

// Delivery describes how a variant ships the payload.
type Delivery struct {
	Kind DeliveryKind
	// FileName and PublicPath are only set for sibling delivery.
	FileName   string
	PublicPath string
}

// siblingPublicPath steps out of the variant directory into the dist root
// where the payload file is written.
const siblingPublicPath = "../"

// Select returns the delivery for env. It depends on nothing but the environment:
// payload size never influences the result.
func Select(env Environment, payloadName string) (Delivery, error) {
	switch env {
	case EnvNode:
		base := filepath.Base(payloadName)
		if base == "" || base == "." || base == string(filepath.Separator) {
			return Delivery{}, &ConfigError{Field: "payload", Value: payloadName, Reason: "cannot derive a payload file name"}
		}
		return Delivery{
			Kind:       DeliverySibling,
			FileName:   strings.TrimSuffix(base, filepath.Ext(base)) + ".wasm",
			PublicPath: siblingPublicPath,
		}, nil
	case EnvBrowser, EnvStandalone:
		return Delivery{Kind: DeliveryInline}, nil
	case EnvSlim:
		return Delivery{Kind: DeliveryUnmanaged}, nil
	default:
		return Delivery{}, &ConfigError{Field: "environment", Value: string(env), Reason: "no payload delivery strategy"}
	}
}

// Reference is the path the emitted module uses to reach a sibling payload,
// relative to the module's own directory.
func (delivery Delivery) Reference() string {
	if delivery.Kind != DeliverySibling {
		return ""
	}
	return delivery.PublicPath + delivery.FileName
}

// Module renders the loader stub that replaces the glue's payload import. Its
// default export returns the payload bytes; instantiation is left to the glue.
func (delivery Delivery) Module(payload []byte, format Format) (string, bool) {
	switch delivery.Kind {
	case DeliveryInline:
		return fmt.Sprintf(inlineModule, base64.StdEncoding.EncodeToString(payload)), true
	case DeliverySibling:
		if format == FormatESModule {
			return fmt.Sprintf(siblingModuleESM, strconv.Quote(delivery.Reference())), true
		}
		return fmt.Sprintf(siblingModuleCJS, strconv.Quote(delivery.Reference())), true
	default:
		return "", false
	}
}

const inlineModule = `const encoded = %q;

export default function payload() {
  if (typeof Buffer !== "undefined") {
    return new Uint8Array(Buffer.from(encoded, "base64"));
  }
  const raw = atob(encoded);
  const bytes = new Uint8Array(raw.length);
  for (let i = 0; i < raw.length; i++) {
    bytes[i] = raw.charCodeAt(i);
  }
  return bytes;
}
`

const siblingModuleCJS = `import { readFileSync } from "fs";
import { join } from "path";

export default function payload() {
  return new Uint8Array(readFileSync(join(__dirname, %s)));
}
`

const siblingModuleESM = `import { readFileSync } from "fs";
import { fileURLToPath } from "url";

export default function payload() {
  return new Uint8Array(readFileSync(fileURLToPath(new URL(%s, import.meta.url))));
}
`
