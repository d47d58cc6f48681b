package cmd

import (
	goerrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	errwrap "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
)

var osExit = os.Exit

// ExitWithCode logs err with the foundry metadata of exitCode and exits.
// A nil logger falls back to stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	if logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		writeFatal(os.Stderr, msg, err)
		osExit(int(exitCode))
		return
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	if envelope, isEnvelope := err.(*errors.ErrorEnvelope); isEnvelope {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("correlation_id", envelope.CorrelationID),
		)
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
		err = underlying(envelope)
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
	osExit(info.Code)
}

// ExitWithCodeStderr reports err on stderr and exits. Used before a logger
// exists.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	writeFatal(os.Stderr, msg, err)
	code := int(exitCode)
	if info, ok := foundry.GetExitCodeInfo(exitCode); ok {
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		code = info.Code
	}
	osExit(code)
}

// ExitCodeFor maps a command error to a semantic exit code.
func ExitCodeFor(err error) foundry.ExitCode {
	if goerrors.Is(err, errAllSourcesFailed) {
		return foundry.ExitExternalServiceUnavailable
	}
	var envelope *errors.ErrorEnvelope
	if goerrors.As(err, &envelope) && envelope.Code == errwrap.CodeConfigInvalid {
		return foundry.ExitConfigInvalid
	}
	return foundry.ExitFailure
}

func writeFatal(w io.Writer, msg string, err error) {
	if err == nil {
		fmt.Fprintf(w, "FATAL: %s\n", msg)
		return
	}
	if envelope, ok := err.(*errors.ErrorEnvelope); ok {
		fmt.Fprintf(w, "FATAL: %s [%s]: %s (correlation: %s)\n",
			msg, envelope.Code, envelope.Message, envelope.CorrelationID)
		if cause := underlying(envelope); cause != envelope {
			fmt.Fprintf(w, "Underlying error: %v\n", cause)
		}
		return
	}
	fmt.Fprintf(w, "FATAL: %s: %v\n", msg, err)
}

// underlying returns the error an envelope wraps, or the envelope itself.
func underlying(envelope *errors.ErrorEnvelope) error {
	if original, ok := envelope.Original.(error); ok && original != nil {
		return original
	}
	return envelope
}
