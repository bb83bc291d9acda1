package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Fieldsync.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Fieldsync.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddPhoto spools and enqueues a captured photo.
func (c *Client) AddPhoto(sourcePath, storeID, storeName string) (*AddPhotoResponse, error) {
	var resp AddPhotoResponse
	req := AddPhotoRequest{SourcePath: sourcePath, StoreID: storeID, StoreName: storeName}
	if err := c.client.Call("Fieldsync.AddPhoto", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Drain schedules an upload pass.
func (c *Client) Drain() (*DrainResponse, error) {
	var resp DrainResponse
	if err := c.client.Call("Fieldsync.Drain", DrainRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns queue items optionally filtered by statuses.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	var resp QueueListResponse
	req := QueueListRequest{Statuses: statuses}
	if err := c.client.Call("Fieldsync.QueueList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueDescribe returns details for a single queue item.
func (c *Client) QueueDescribe(id int64) (*QueueDescribeResponse, error) {
	var resp QueueDescribeResponse
	req := QueueDescribeRequest{ID: id}
	if err := c.client.Call("Fieldsync.QueueDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueStats returns per-status queue counts.
func (c *Client) QueueStats() (*QueueStatsResponse, error) {
	var resp QueueStatsResponse
	if err := c.client.Call("Fieldsync.QueueStats", QueueStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes all items from the queue.
func (c *Client) QueueClear() (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Fieldsync.QueueClear", QueueClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClearUploaded removes uploaded items from the queue.
func (c *Client) QueueClearUploaded() (*QueueClearUploadedResponse, error) {
	var resp QueueClearUploadedResponse
	if err := c.client.Call("Fieldsync.QueueClearUploaded", QueueClearUploadedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cleanup removes uploaded rows older than the retention window.
func (c *Client) Cleanup(olderThan time.Duration) (*CleanupResponse, error) {
	var resp CleanupResponse
	req := CleanupRequest{OlderThanMs: olderThan.Milliseconds()}
	if err := c.client.Call("Fieldsync.Cleanup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Fieldsync.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
