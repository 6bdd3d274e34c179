package statistics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() GameResult {
	started := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	return GameResult{
		GameID: "01jxq4e8v2b3c4d5e6f7g8h9j0",
		Winner: 2,
		Rounds: 9,
		Players: []PlayerResult{
			{PlayerID: "alice", DisplayName: "Alice", Position: 0, Score: 12, IsAI: false},
			{PlayerID: "ai-01jxq4e8v2b3c4d5e6f7g8h9j0-1", DisplayName: "Bot 1", Position: 1, Score: 7, IsAI: true},
			{PlayerID: "carol", DisplayName: "Carol", Position: 2, Score: -2, IsAI: false},
			{PlayerID: "dave", DisplayName: "Dave", Position: 3, Score: 30, IsAI: false},
		},
		StartedAt:  started,
		FinishedAt: started.Add(45 * time.Minute),
	}
}

func TestNopSink(t *testing.T) {
	var sink Sink = NopSink{}
	require.NoError(t, sink.RecordGameResult(context.Background(), sampleResult()))
	require.NoError(t, sink.Close())
}

func TestGameResultWireShape(t *testing.T) {
	payload, err := json.Marshal(sampleResult())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "01jxq4e8v2b3c4d5e6f7g8h9j0", decoded["gameId"])
	assert.Equal(t, float64(2), decoded["winner"])
	assert.Equal(t, float64(9), decoded["rounds"])

	players := decoded["players"].([]any)
	require.Len(t, players, 4)
	bot := players[1].(map[string]any)
	assert.Equal(t, true, bot["isAi"])
	assert.Equal(t, "Bot 1", bot["displayName"])
	assert.Equal(t, float64(7), bot["score"])
}

func TestKafkaSinkPublishesKeyedResult(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	sink := &KafkaSink{producer: producer, topic: "buckeuchre.results", log: log.Default()}

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "01jxq4e8v2b3c4d5e6f7g8h9j0", string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		var decoded GameResult
		require.NoError(t, json.Unmarshal(value, &decoded))
		assert.Equal(t, 2, decoded.Winner)
		assert.Len(t, decoded.Players, 4)
		return nil
	})

	require.NoError(t, sink.RecordGameResult(context.Background(), sampleResult()))
	require.NoError(t, sink.Close())
}

func TestKafkaSinkPropagatesSendError(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	sink := &KafkaSink{producer: producer, topic: "buckeuchre.results", log: log.Default()}

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	err := sink.RecordGameResult(context.Background(), sampleResult())
	require.Error(t, err)
	require.NoError(t, sink.Close())
}
