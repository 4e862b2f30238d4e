// Package decoder turns base64-encoded transaction bytes into normalized
// decoded shapes, following a three-tier dispatch: a compile-time fast
// path for known cosmos-sdk/wasmd message
// types, a dynamic protodesc/dynamicpb path for anything else the chain's
// schema tree knows about, and a raw-bytes fallback that preserves the
// original bytes rather than dropping them.
package decoder

import (
	"encoding/base64"
	"fmt"
	"strings"

	"chain-indexer/logging"

	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	distrtypes "github.com/cosmos/cosmos-sdk/x/distribution/types"
	govv1 "github.com/cosmos/cosmos-sdk/x/gov/types/v1"
	govv1beta1 "github.com/cosmos/cosmos-sdk/x/gov/types/v1beta1"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// TypedMsg is the normalized decoded shape: `@type` plus every other
// field of the message as a generic JSON-ish value, before case
// conversion is applied by the caller.
type TypedMsg struct {
	TypeURL string
	Fields  map[string]any
}

// Registry is the immutable, load-once-at-startup protobuf type registry
// a decoder.Pool's workers share. It is safe for concurrent reads.
type Registry struct {
	interfaceRegistry codectypes.InterfaceRegistry
	protoCodec        *codec.ProtoCodec
	files             *protoregistry.Files
}

// NewRegistry builds the fast-path interface registry by wiring up each
// module's codec (a RegisterInterfaces call per module), then layers the
// global compiled proto file descriptor set on top as the dynamic path.
func NewRegistry() *Registry {
	ir := codectypes.NewInterfaceRegistry()

	sdk.RegisterInterfaces(ir)
	banktypes.RegisterInterfaces(ir)
	stakingtypes.RegisterInterfaces(ir)
	distrtypes.RegisterInterfaces(ir)
	govv1.RegisterInterfaces(ir)
	govv1beta1.RegisterInterfaces(ir)
	wasmtypes.RegisterInterfaces(ir)

	return &Registry{
		interfaceRegistry: ir,
		protoCodec:        codec.NewProtoCodec(ir),
		files:             protoregistry.GlobalFiles,
	}
}

// Decode runs the three-tier dispatch for a single Any-shaped
// (type_url, value) pair.
func (r *Registry) Decode(typeURL string, value []byte) TypedMsg {
	if msg, ok := r.decodeFastPath(typeURL, value); ok {
		return msg
	}
	if msg, ok := r.decodeDynamicPath(typeURL, value); ok {
		return msg
	}
	warnUnknownType(typeURL, value)
	return TypedMsg{
		TypeURL: typeURL,
		Fields: map[string]any{
			"value_b64": base64.StdEncoding.EncodeToString(value),
		},
	}
}

func (r *Registry) decodeFastPath(typeURL string, value []byte) (TypedMsg, bool) {
	name := strings.TrimPrefix(typeURL, "/")
	msgType, err := r.interfaceRegistry.Resolve("/" + name)
	if err != nil || msgType == nil {
		return TypedMsg{}, false
	}
	protoMsg, ok := msgType.(proto.Message)
	if !ok {
		return TypedMsg{}, false
	}
	fresh := proto.Clone(protoMsg)
	proto.Reset(fresh)
	if err := proto.Unmarshal(value, fresh); err != nil {
		return TypedMsg{}, false
	}
	fields, err := protoMessageToMap(fresh)
	if err != nil {
		return TypedMsg{}, false
	}
	return TypedMsg{TypeURL: typeURL, Fields: fields}, true
}

func (r *Registry) decodeDynamicPath(typeURL string, value []byte) (TypedMsg, bool) {
	name := protoreflect.FullName(strings.TrimPrefix(typeURL, "/"))
	desc, err := r.files.FindDescriptorByName(name)
	if err != nil {
		return TypedMsg{}, false
	}
	msgDesc, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return TypedMsg{}, false
	}
	dynMsg := dynamicpb.NewMessage(msgDesc)
	if err := proto.Unmarshal(value, dynMsg); err != nil {
		return TypedMsg{}, false
	}
	fields, err := protoMessageToMap(dynMsg)
	if err != nil {
		return TypedMsg{}, false
	}
	return TypedMsg{TypeURL: typeURL, Fields: fields}, true
}

// protoMessageToMap renders a proto.Message through protojson so
// bytes fields come out base64, enums as strings, and 64-bit integers
// as strings, matching dynamic-path encoding rules.
func protoMessageToMap(msg proto.Message) (map[string]any, error) {
	b, err := protojson.MarshalOptions{
		EmitUnpopulated: false,
		UseEnumNumbers:  false,
	}.Marshal(msg)
	if err != nil {
		return nil, err
	}
	fields, err := jsonObjectToMap(b)
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// LoadDescriptorSet registers every file in a serialized
// FileDescriptorSet (as produced by `buf build -o` or `protoc
// --descriptor_set_out`) into the dynamic path, for chain-specific
// modules whose generated types never reach the fast path's fixed
// import list. No code in this module calls it: the indexer commands
// build the registry with NewRegistry only, so the dynamic path sees
// just the descriptors compiled into the binary.
func (r *Registry) LoadDescriptorSet(raw []byte) error {
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(raw, &set); err != nil {
		return fmt.Errorf("decoder: invalid FileDescriptorSet: %w", err)
	}
	files, err := protodesc.NewFiles(&set)
	if err != nil {
		return fmt.Errorf("decoder: cannot build file descriptors: %w", err)
	}
	var regErr error
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		if _, err := r.files.FindFileByPath(fd.Path()); err == nil {
			return true
		}
		if err := r.files.RegisterFile(fd); err != nil {
			regErr = err
			return false
		}
		return true
	})
	return regErr
}

func warnUnknownType(typeURL string, value []byte) {
	head := value
	if len(head) > 8 {
		head = head[:8]
	}
	logging.Warn("unknown type_url fell through to raw fallback", logging.Decode,
		"type_url", typeURL, "head_hex", fmt.Sprintf("%x", head))
}
