package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/types"
	"github.com/herbtrace/herbtrace-backend/internal/utils"
)

// FabricLedger submits and queries through the Hyperledger Fabric `peer`
// binary. Each call runs one subprocess under a hard timeout; any failure is
// reported to the caller, who logs it and carries on with the local chain.
type FabricLedger struct {
	log         *logger.Logger
	binDir      string
	networkDir  string
	channel     string
	chaincode   string
	ordererAddr string
	peerAddr    string
	timeout     time.Duration
	env         []string
}

func NewFabricLedger(log *logger.Logger) *FabricLedger {
	serviceLog := log.With("service", "FabricLedger")

	binDir := utils.GetEnv("FABRIC_BIN_DIR", "", log)
	networkDir := utils.GetEnv("FABRIC_NETWORK_DIR", "", log)
	channel := utils.GetEnv("FABRIC_CHANNEL", "herbtrace", log)
	chaincode := utils.GetEnv("FABRIC_CHAINCODE", "herbtrace", log)
	ordererAddr := utils.GetEnv("FABRIC_ORDERER_ADDRESS", "localhost:7050", log)
	peerAddr := utils.GetEnv("FABRIC_PEER_ADDRESS", "localhost:7051", log)
	timeout := utils.GetEnvAsDuration("FABRIC_TIMEOUT", 15*time.Second, log)

	env := os.Environ()
	if binDir != "" {
		env = append(env, "PATH="+binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
	env = append(env,
		"CORE_PEER_ADDRESS="+peerAddr,
		"FABRIC_CFG_PATH="+filepath.Join(networkDir, "config"),
	)

	return &FabricLedger{
		log:         serviceLog,
		binDir:      binDir,
		networkDir:  networkDir,
		channel:     channel,
		chaincode:   chaincode,
		ordererAddr: ordererAddr,
		peerAddr:    peerAddr,
		timeout:     timeout,
		env:         env,
	}
}

// Configured reports whether the CLI environment is present at all. Callers
// fall back to the noop gateway when it is not.
func (f *FabricLedger) Configured() bool {
	return f.networkDir != ""
}

func (f *FabricLedger) Submit(ctx context.Context, kind types.TxKind, subjectKey string, payload map[string]any) (*SubmitResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: encoding payload: %w", err)
	}
	invokeArgs, err := json.Marshal(map[string]any{
		"function": "recordTransaction",
		"Args":     []string{string(kind), subjectKey, string(raw)},
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: encoding invoke args: %w", err)
	}

	output, err := f.run(ctx,
		"chaincode", "invoke",
		"-o", f.ordererAddr,
		"-C", f.channel,
		"-n", f.chaincode,
		"--peerAddresses", f.peerAddr,
		"-c", string(invokeArgs),
	)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Accepted: true}
	if ref := extractPayload(output); ref != "" {
		result.ExternalReference = ref
	}
	return result, nil
}

func (f *FabricLedger) Query(ctx context.Context, subjectKey string) (map[string]any, error) {
	queryArgs, err := json.Marshal(map[string]any{
		"function": "getHistory",
		"Args":     []string{subjectKey},
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: encoding query args: %w", err)
	}

	output, err := f.run(ctx,
		"chaincode", "query",
		"-C", f.channel,
		"-n", f.chaincode,
		"-c", string(queryArgs),
	)
	if err != nil {
		return nil, err
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &parsed); err != nil {
		return map[string]any{"raw": strings.TrimSpace(output)}, nil
	}
	return parsed, nil
}

func (f *FabricLedger) Status(ctx context.Context) *NetworkStatus {
	status := &NetworkStatus{
		Network:   "Hyperledger Fabric",
		Channel:   f.channel,
		Chaincode: f.chaincode,
		CheckedAt: time.Now().UTC(),
	}
	if _, err := f.Query(ctx, "network-status"); err != nil {
		status.Status = "disconnected"
		status.Error = err.Error()
		return status
	}
	status.Status = "connected"
	return status
}

func (f *FabricLedger) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "peer", args...)
	cmd.Env = f.env
	if f.networkDir != "" {
		cmd.Dir = f.networkDir
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("gateway: peer %s: %w: %s", args[1], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// extractPayload pulls the payload string out of the peer CLI's invoke
// response, which arrives as log text rather than structured output.
func extractPayload(output string) string {
	const marker = `payload:"`
	start := strings.Index(output, marker)
	if start < 0 {
		return ""
	}
	rest := output[start+len(marker):]
	end := strings.LastIndex(rest, `"`)
	if end <= 0 {
		return ""
	}
	payload := rest[:end]
	payload = strings.ReplaceAll(payload, `\"`, `"`)
	payload = strings.ReplaceAll(payload, `\n`, "\n")
	return payload
}
