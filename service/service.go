package service

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/hashicorp/go-version"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/transaction-toolkit/bridge"
	"github.com/wippyai/transaction-toolkit/engine"
	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/schema"
	"github.com/wippyai/transaction-toolkit/transaction"
)

// Config configures a Service. A nil *Config uses defaults.
type Config struct {
	// Engine configures the wazero runtime.
	Engine *engine.Config

	// PoolSize is the number of library instances; 0 means 1.
	PoolSize int

	// MinVersion is a version constraint the library's package_version
	// must satisfy, such as ">= 0.5.0, < 0.6". A bare version means
	// ">= version". Empty skips the check.
	MinVersion string

	// SkipValidation sends requests without checking them first.
	SkipValidation bool

	// Logger is installed as the engine and bridge logger.
	Logger *zap.Logger

	// TracerProvider is used for call spans instead of the global provider.
	TracerProvider trace.TracerProvider
}

// Service exposes every library operation as a typed method.
type Service struct {
	invoker Invoker
	closers []func(context.Context) error
	missing []schema.Operation
	version *version.Version
	log     *zap.Logger
	cfg     Config
}

// New loads wasm and creates a service backed by a pool of instances.
func New(ctx context.Context, wasm []byte, cfg *Config) (*Service, error) {
	c := config(cfg)
	if c.Logger != nil {
		engine.SetLogger(c.Logger)
		bridge.SetLogger(c.Logger)
	}

	eng, err := engine.NewEngine(ctx, c.Engine)
	if err != nil {
		return nil, err
	}
	mod, err := eng.Load(ctx, wasm)
	if err != nil {
		eng.Close(ctx)
		return nil, err
	}

	pool, err := NewPool(ctx, c.PoolSize, func(ctx context.Context) (bridge.Foreign, error) {
		return mod.Instantiate(ctx)
	}, bridgeOptions(c)...)
	if err != nil {
		mod.Close(ctx)
		eng.Close(ctx)
		return nil, err
	}

	s := newService(pool, c)
	s.closers = []func(context.Context) error{pool.Close, mod.Close, eng.Close}
	for _, op := range schema.Operations() {
		if !mod.HasExport(string(op)) {
			s.missing = append(s.missing, op)
		}
	}
	if len(s.missing) > 0 {
		s.log.Warn("library does not export every operation", zap.Stringers("missing", s.missing))
	}

	if err := s.start(ctx); err != nil {
		s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// NewFromFile reads a library from path and calls New.
func NewFromFile(ctx context.Context, path string, cfg *Config) (*Service, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return New(ctx, wasm, cfg)
}

// NewWithInvoker creates a service over an existing bridge or pool. The
// caller keeps ownership of inv.
func NewWithInvoker(ctx context.Context, inv Invoker, cfg *Config) (*Service, error) {
	s := newService(inv, config(cfg))
	if err := s.start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func config(cfg *Config) Config {
	if cfg == nil {
		return Config{}
	}
	return *cfg
}

func bridgeOptions(c Config) []bridge.Option {
	var opts []bridge.Option
	if c.TracerProvider != nil {
		opts = append(opts, bridge.WithTracerProvider(c.TracerProvider))
	}
	if c.Logger != nil {
		opts = append(opts, bridge.WithLogger(c.Logger))
	}
	return opts
}

func newService(inv Invoker, c Config) *Service {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{invoker: inv, cfg: c, log: log}
}

// start checks the library version when a constraint is configured.
func (s *Service) start(ctx context.Context) error {
	if s.cfg.MinVersion == "" {
		return nil
	}

	expr := strings.TrimSpace(s.cfg.MinVersion)
	if expr != "" && (expr[0] >= '0' && expr[0] <= '9' || expr[0] == 'v') {
		expr = ">= " + expr
	}
	constraint, err := version.NewConstraint(expr)
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.TagRequestResponseConversionError,
			errors.KindInvalidInput, err, "parse version constraint "+s.cfg.MinVersion)
	}

	info, err := s.Information(ctx)
	if err != nil {
		return err
	}
	v, err := version.NewVersion(info.PackageVersion)
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.TagRequestResponseConversionError,
			errors.KindInvalidData, err, "parse package version "+info.PackageVersion)
	}
	if !constraint.Check(v) {
		return errors.New(errors.PhaseLoad, errors.TagRequestResponseConversionError).
			Kind(errors.KindUnsupported).
			Message("library version %s does not satisfy %s", v, expr).
			Build()
	}

	s.version = v
	s.log.Info("transaction library ready", zap.String("version", v.String()))
	return nil
}

// Version returns the library version found by the start-up check, or nil
// when no check ran.
func (s *Service) Version() *version.Version {
	return s.version
}

// Missing lists operations the loaded library does not export.
func (s *Service) Missing() []schema.Operation {
	return append([]schema.Operation(nil), s.missing...)
}

// CallRaw sends a raw JSON request to any export and returns the raw reply.
func (s *Service) CallRaw(ctx context.Context, name string, payload []byte) ([]byte, error) {
	return s.invoker.CallRaw(ctx, name, payload)
}

// Close releases the pool, module and engine created by New.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	for _, c := range s.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return stderrors.Join(errs...)
}

func call[Resp any](ctx context.Context, s *Service, op schema.Operation, req any) (*Resp, error) {
	if v, ok := req.(schema.Validator); ok && !s.cfg.SkipValidation {
		if err := v.Validate(); err != nil {
			return nil, errors.WithPath(err, string(op))
		}
	}
	var resp Resp
	if err := s.invoker.Call(ctx, string(op), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) Information(ctx context.Context) (*schema.InformationResponse, error) {
	return call[schema.InformationResponse](ctx, s, schema.OpInformation, schema.InformationRequest{})
}

func (s *Service) ConvertManifest(ctx context.Context, req schema.ConvertManifestRequest) (*schema.ConvertManifestResponse, error) {
	return call[schema.ConvertManifestResponse](ctx, s, schema.OpConvertManifest, req)
}

func (s *Service) CompileTransactionIntent(ctx context.Context, req schema.CompileTransactionIntentRequest) (*schema.CompileTransactionIntentResponse, error) {
	return call[schema.CompileTransactionIntentResponse](ctx, s, schema.OpCompileTransactionIntent, req)
}

func (s *Service) DecompileTransactionIntent(ctx context.Context, req schema.DecompileTransactionIntentRequest) (*schema.DecompileTransactionIntentResponse, error) {
	return call[schema.DecompileTransactionIntentResponse](ctx, s, schema.OpDecompileTransactionIntent, req)
}

func (s *Service) CompileSignedTransactionIntent(ctx context.Context, req schema.CompileSignedTransactionIntentRequest) (*schema.CompileSignedTransactionIntentResponse, error) {
	return call[schema.CompileSignedTransactionIntentResponse](ctx, s, schema.OpCompileSignedTransactionIntent, req)
}

func (s *Service) DecompileSignedTransactionIntent(ctx context.Context, req schema.DecompileSignedTransactionIntentRequest) (*schema.DecompileSignedTransactionIntentResponse, error) {
	return call[schema.DecompileSignedTransactionIntentResponse](ctx, s, schema.OpDecompileSignedTransactionIntent, req)
}

func (s *Service) CompileNotarizedTransactionIntent(ctx context.Context, req schema.CompileNotarizedTransactionIntentRequest) (*schema.CompileNotarizedTransactionIntentResponse, error) {
	return call[schema.CompileNotarizedTransactionIntentResponse](ctx, s, schema.OpCompileNotarizedTransactionIntent, req)
}

func (s *Service) DecompileNotarizedTransactionIntent(ctx context.Context, req schema.DecompileNotarizedTransactionIntentRequest) (*schema.DecompileNotarizedTransactionIntentResponse, error) {
	return call[schema.DecompileNotarizedTransactionIntentResponse](ctx, s, schema.OpDecompileNotarizedTransactionIntent, req)
}

func (s *Service) DecompileUnknownTransactionIntent(ctx context.Context, req schema.DecompileUnknownTransactionIntentRequest) (*schema.DecompileUnknownTransactionIntentResponse, error) {
	return call[schema.DecompileUnknownTransactionIntentResponse](ctx, s, schema.OpDecompileUnknownTransactionIntent, req)
}

func (s *Service) EncodeAddress(ctx context.Context, req schema.EncodeAddressRequest) (*schema.EncodeAddressResponse, error) {
	return call[schema.EncodeAddressResponse](ctx, s, schema.OpEncodeAddress, req)
}

func (s *Service) DecodeAddress(ctx context.Context, req schema.DecodeAddressRequest) (*schema.DecodeAddressResponse, error) {
	return call[schema.DecodeAddressResponse](ctx, s, schema.OpDecodeAddress, req)
}

func (s *Service) SBOREncode(ctx context.Context, req schema.SBOREncodeRequest) (*schema.SBOREncodeResponse, error) {
	return call[schema.SBOREncodeResponse](ctx, s, schema.OpSBOREncode, req)
}

func (s *Service) SBORDecode(ctx context.Context, req schema.SBORDecodeRequest) (*schema.SBORDecodeResponse, error) {
	return call[schema.SBORDecodeResponse](ctx, s, schema.OpSBORDecode, req)
}

// Sign compiles intent and signs the compiled bytes with every signer.
func (s *Service) Sign(ctx context.Context, intent transaction.Intent, signers ...transaction.Signer) (transaction.SignedIntent, error) {
	compiled, err := s.CompileTransactionIntent(ctx, schema.CompileTransactionIntentRequest{Intent: intent})
	if err != nil {
		return transaction.SignedIntent{}, err
	}

	signed := transaction.SignedIntent{
		Intent:     intent,
		Signatures: make([]transaction.SignatureWithPublicKey, 0, len(signers)),
	}
	for _, signer := range signers {
		sig, err := transaction.SignIntent(signer, compiled.CompiledIntent)
		if err != nil {
			return transaction.SignedIntent{}, err
		}
		signed.Signatures = append(signed.Signatures, sig)
	}
	return signed, nil
}

// Notarize compiles signed, signs it as notary and returns the notarized
// intent together with its compiled form, ready for submission.
func (s *Service) Notarize(ctx context.Context, signed transaction.SignedIntent, notary transaction.Signer) (transaction.NotarizedIntent, []byte, error) {
	compiled, err := s.CompileSignedTransactionIntent(ctx, schema.CompileSignedTransactionIntentRequest{SignedIntent: signed})
	if err != nil {
		return transaction.NotarizedIntent{}, nil, err
	}
	sig, err := transaction.Notarize(notary, compiled.CompiledSignedIntent)
	if err != nil {
		return transaction.NotarizedIntent{}, nil, err
	}

	notarized := transaction.NotarizedIntent{SignedIntent: signed, NotarySignature: sig}
	out, err := s.CompileNotarizedTransactionIntent(ctx, schema.CompileNotarizedTransactionIntentRequest{NotarizedIntent: notarized})
	if err != nil {
		return transaction.NotarizedIntent{}, nil, err
	}
	return notarized, out.CompiledNotarizedIntent, nil
}
