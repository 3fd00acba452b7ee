// wsclient 模拟 Unity 客户端，通过 WebSocket 与后端交互。
//
// 输入一行文本发送 text_input；输入 "emotion: sad" 这样的前缀发送
// emotion_update；收到的音频可选保存到本地文件。
package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type clientMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Emotion string `json:"emotion,omitempty"`
}

type serverMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Audio   string `json:"audio,omitempty"`
	Emotion string `json:"emotion,omitempty"`
	Message string `json:"message,omitempty"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	url := flag.String("url", "ws://localhost:8000/ws", "后端 WebSocket 地址")
	audioDir := flag.String("audio-dir", "", "音频保存目录，留空则丢弃音频")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("连接失败: %v", err)
	}
	defer conn.Close()

	log.Printf("已连接 %s，输入文本发送，emotion: <label> 发送情绪，Ctrl-D 退出", *url)

	go readLoop(conn, *audioDir)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		msg := clientMessage{Type: "text_input", Content: line}
		if rest, ok := strings.CutPrefix(line, "emotion:"); ok {
			msg = clientMessage{Type: "emotion_update", Emotion: strings.TrimSpace(rest)}
		}

		if err := conn.WriteJSON(msg); err != nil {
			log.Fatalf("发送失败: %v", err)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("读取输入失败: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

func readLoop(conn *websocket.Conn, audioDir string) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("连接已断开: %v", err)
		}

		var msg serverMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("无法解析服务端消息: %v", err)
			continue
		}

		switch msg.Type {
		case "response":
			fmt.Printf("AI: %s\n", msg.Text)
			saveAudio(audioDir, msg.Audio)
		case "emotion_interaction":
			fmt.Printf("AI (%s): %s\n", msg.Emotion, msg.Text)
			saveAudio(audioDir, msg.Audio)
		case "error":
			fmt.Printf("错误: %s\n", msg.Message)
		default:
			fmt.Printf("未知消息: %s\n", raw)
		}
	}
}

func saveAudio(dir, audioB64 string) {
	if dir == "" || audioB64 == "" {
		return
	}

	data, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		log.Printf("音频解码失败: %v", err)
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("reply-%d.mp3", time.Now().UnixNano()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("写入音频文件失败: %v", err)
		return
	}
	log.Printf("音频已保存: %s (%d bytes)", path, len(data))
}
