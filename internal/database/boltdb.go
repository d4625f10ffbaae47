package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// BucketName 是数据库中的“表名”
	BucketName = "RunHistory"
)

// DB 封装 BoltDB 实例
type DB struct {
	conn *bbolt.DB
}

// NewBoltDB 初始化并打开数据库
func NewBoltDB(dbPath string) (*DB, error) {
	// 打开数据库，如果文件不存在则创建
	// Timeout 选项防止两个进程同时打开同一个数据库导致死锁
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	// 确保 Bucket 存在
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close 关闭数据库连接
func (d *DB) Close() error {
	return d.conn.Close()
}

var errNotFound = errors.New("not found")

// Get 获取单个任务最近一次的运行记录，没有记录时返回 nil, nil
func (d *DB) Get(taskID string) (*RunRecord, error) {
	var rec RunRecord
	err := d.conn.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		v := b.Get([]byte(taskID))
		if v == nil {
			return errNotFound
		}
		return json.Unmarshal(v, &rec)
	})

	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Put 保存或覆盖任务的运行记录
func (d *DB) Put(rec *RunRecord) error {
	if rec.TaskID == "" {
		return errors.New("run record without task id")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}

	return d.conn.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		return b.Put([]byte(rec.TaskID), data)
	})
}

// Delete 删除任务的运行记录 (当任务被移除时调用)
func (d *DB) Delete(taskID string) error {
	return d.conn.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		return b.Delete([]byte(taskID))
	})
}

// ListAll 获取所有运行记录，按结束时间倒序
func (d *DB) ListAll() ([]*RunRecord, error) {
	var result []*RunRecord

	err := d.conn.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))

		return b.ForEach(func(k, v []byte) error {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record key=%s: %w", string(k), err)
			}
			result = append(result, &rec)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].FinishedAt > result[j].FinishedAt
	})
	return result, nil
}

// Prune 删除不在 keep 中的任务记录，返回删除条数
// 设置整体导入后调用，避免历史里残留已不存在的任务
func (d *DB) Prune(keep map[string]bool) (int, error) {
	removed := 0
	err := d.conn.Update(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketName)).Cursor()
		for k, _ := c.First(); k != nil; {
			if keep[string(k)] {
				k, _ = c.Next()
				continue
			}
			// Delete 之后直接 Next 会跳过一个元素，用 Seek 重新定位
			key := append([]byte(nil), k...)
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
			k, _ = c.Seek(key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
