package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shExecutor() *Executor {
	return New("sh")
}

func TestRunBlocking_SuccessfulCommand(t *testing.T) {
	e := shExecutor()

	result, err := e.RunBlocking(context.Background(), []string{"-c", "echo hello"}, "", 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, 0, result.RC)
	assert.Contains(t, result.Stdout, "hello")
}

func TestRunBlocking_NonZeroExit(t *testing.T) {
	e := shExecutor()

	result, err := e.RunBlocking(context.Background(), []string{"-c", "exit 3"}, "", 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, 3, result.RC)
}

func TestRunBlocking_StdinIsDelivered(t *testing.T) {
	e := shExecutor()

	result, err := e.RunBlocking(context.Background(), []string{"-c", "cat"}, "piped input", 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "piped input", result.Stdout)
}

func TestRunBlocking_Timeout(t *testing.T) {
	e := shExecutor()

	result, err := e.RunBlocking(context.Background(), []string{"-c", "sleep 5"}, "", 50*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 124, result.RC)
	assert.Contains(t, result.Stderr, "TIMEOUT")
}

func TestRunBlocking_ExternalCancelPropagates(t *testing.T) {
	e := shExecutor()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := e.RunBlocking(ctx, []string{"-c", "sleep 5"}, "", 5*time.Second)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStreaming_InvokesProgressPerLine(t *testing.T) {
	e := shExecutor()

	var lines []string
	onProgress := func(chunk string, tokens int, elapsed float64) {
		lines = append(lines, chunk)
	}

	result, err := e.RunStreaming(context.Background(), []string{"-c", "echo one; echo two"}, "", 5*time.Second, nil, onProgress)

	require.NoError(t, err)
	assert.Equal(t, 0, result.RC)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestRunStreaming_Timeout(t *testing.T) {
	e := shExecutor()

	result, err := e.RunStreaming(context.Background(), []string{"-c", "sleep 5"}, "", 50*time.Millisecond, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 124, result.RC)
	assert.Contains(t, result.Stderr, "TIMEOUT")
}

func TestRunStreaming_ExternalCancel(t *testing.T) {
	e := shExecutor()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result, err := e.RunStreaming(ctx, []string{"-c", "sleep 5"}, "", 5*time.Second, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 130, result.RC)
	assert.Contains(t, result.Stderr, "CANCELLED")
}

func TestDefaultTokenCounter_CeilsLength(t *testing.T) {
	counter := DefaultTokenCounter(4)

	assert.Equal(t, 0, counter(""))
	assert.Equal(t, 1, counter("abc"))
	assert.Equal(t, 1, counter("abcd"))
	assert.Equal(t, 2, counter("abcde"))
}
