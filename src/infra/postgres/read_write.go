package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Config agrupa os parâmetros de conexão do primário (escrita) e da réplica (leitura).
type Config struct {
	ReadHost       string
	WriteHost      string
	ReadPort       string
	WritePort      string
	DBName         string
	Username       string
	Password       string
	MaxConnections int
}

type ReadWriteClient struct {
	readPool  *pgxpool.Pool
	writePool *pgxpool.Pool
}

// NewReadWriteClient opens one pool per host. When both hosts are the same the write pool is reused for reads.
func NewReadWriteClient(cfg Config) (*ReadWriteClient, error) {
	writePool, err := NewPostgresClient(cfg.WriteHost, cfg.WritePort, cfg.DBName, cfg.Username, cfg.Password, cfg.MaxConnections)
	if err != nil {
		return nil, err
	}

	if cfg.ReadHost == "" || (cfg.ReadHost == cfg.WriteHost && cfg.ReadPort == cfg.WritePort) {
		return &ReadWriteClient{readPool: writePool, writePool: writePool}, nil
	}

	readPool, err := NewPostgresClient(cfg.ReadHost, cfg.ReadPort, cfg.DBName, cfg.Username, cfg.Password, cfg.MaxConnections)
	if err != nil {
		writePool.Close()
		return nil, err
	}

	return &ReadWriteClient{
		readPool:  readPool,
		writePool: writePool,
	}, nil
}

func (rwc *ReadWriteClient) GetReadPool() *pgxpool.Pool {
	return rwc.readPool
}

func (rwc *ReadWriteClient) GetWritePool() *pgxpool.Pool {
	return rwc.writePool
}

func (rwc *ReadWriteClient) Close() {
	if rwc.readPool != nil && rwc.readPool != rwc.writePool {
		rwc.readPool.Close()
	}
	if rwc.writePool != nil {
		rwc.writePool.Close()
	}
}
